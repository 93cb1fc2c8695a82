package cmd

import (
	"errors"

	"github.com/jamalpur-chamber/chamber/internal/account"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/gallery"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
	"github.com/jamalpur-chamber/chamber/internal/notices"
	"github.com/jamalpur-chamber/chamber/internal/output"
)

// errorCode classifies err for JSON output.
func errorCode(err error) string {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return output.ErrCodeUnauthorized
	case errors.Is(err, apiclient.ErrForbidden):
		return output.ErrCodeForbidden
	case errors.Is(err, apiclient.ErrNotFound), errors.Is(err, errNoticeNotFound):
		return output.ErrCodeNotFound
	case errors.Is(err, account.ErrValidation),
		errors.Is(err, gallery.ErrInvalidImageID),
		errors.Is(err, notices.ErrInvalidInput):
		return output.ErrCodeInvalidInput
	case errors.Is(err, kvstore.ErrClosed):
		return output.ErrCodeStoreError
	}
	return output.ErrCodeNetwork
}

// fail reports err in the requested mode and returns it for cobra.
func fail(jsonOut bool, err error) error {
	if jsonOut {
		details := map[string]interface{}{}
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			details["status"] = apiErr.Status
		}
		output.JSONErrorWithDetails(errorCode(err), err.Error(), details)
		return err
	}
	output.Error("%v", err)
	return err
}
