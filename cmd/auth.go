package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/jamalpur-chamber/chamber/internal/account"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/jamalpur-chamber/chamber/internal/session"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Log in, log out and reset your password",
	GroupID: "account",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		var password string

		if useForms() {
			err := runForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email).Validate(notEmpty("email")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(notEmpty("password")),
			).Title("Login"))
			if err != nil {
				return err
			}
		} else {
			var err error
			if email == "" {
				if email, err = readLine("Email"); err != nil {
					return err
				}
			}
			if password, err = readSecret("Password"); err != nil {
				return err
			}
		}
		email = strings.TrimSpace(email)
		if email == "" || password == "" {
			err := fmt.Errorf("%w: email and password required", account.ErrValidation)
			output.Error("%v", err)
			return err
		}

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		resp, err := a.api.Login(ctx, email, password)
		if err != nil {
			output.Error("login: %v", err)
			return err
		}
		if err := a.session.Save(ctx, resp.Token, resp.User); err != nil {
			output.Error("%v", err)
			return err
		}

		if resp.User != nil {
			output.Success("Logged in as %s", output.FormatUser(resp.User))
		} else {
			output.Success("Logged in as %s", email)
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if err := a.session.Clear(cmd.Context()); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		tok, err := a.session.Token(ctx)
		if err != nil {
			return fail(jsonOut, err)
		}
		user, err := a.session.User(ctx)
		if err != nil {
			return fail(jsonOut, err)
		}
		claims := session.Inspect(tok)
		expired := claims.Expired(time.Now())

		if jsonOut {
			status := map[string]interface{}{
				"logged_in": tok != "",
				"admin":     a.session.IsAdmin(ctx),
				"expired":   expired,
			}
			if user != nil {
				status["user"] = user
			}
			if !claims.ExpiresAt.IsZero() {
				status["expires_at"] = claims.ExpiresAt
			}
			return output.JSON(status)
		}

		if tok == "" {
			output.Info("Not logged in")
			return nil
		}
		if user != nil {
			fmt.Printf("User:    %s\n", output.FormatUser(user))
		} else if claims.Subject != "" {
			fmt.Printf("Subject: %s\n", claims.Subject)
		}
		role := "member"
		if a.session.IsAdmin(ctx) {
			role = "admin"
		}
		fmt.Printf("Role:    %s\n", role)
		if !claims.ExpiresAt.IsZero() {
			fmt.Printf("Expires: %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		if expired {
			output.Warning("token expired, run 'chamber auth login'")
		}
		return nil
	},
}

var authForgotCmd = &cobra.Command{
	Use:   "forgot-password [email]",
	Short: "Email a password reset link",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var email string
		if len(args) == 1 {
			email = args[0]
		} else if useForms() {
			if err := runForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email).Validate(notEmpty("email")),
			).Title("Forgot password")); err != nil {
				return err
			}
		} else {
			var err error
			if email, err = readLine("Email"); err != nil {
				return err
			}
		}

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		email = strings.TrimSpace(email)
		msg, err := a.accounts.ForgotPassword(cmd.Context(), email)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if msg == "" {
			msg = "Reset link sent to " + email
		}
		output.Success("%s", msg)
		return nil
	},
}

var authResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password from a reset link token",
	Long: `Set a new password using the token from a password reset email.

The token is checked in the background while you type. A link the portal
rejects is reported as a warning, and the new password is still submitted.
The new password must be at least 8 characters with upper case, lower case
and a digit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		verified := a.accounts.VerifyAsync(ctx, token)
		status := account.TokenUnknown
		poll := func() {
			select {
			case s, ok := <-verified:
				if ok {
					status = s
				}
			default:
			}
		}

		form := account.ResetForm{Token: token}
		poll()
		warnInvalid := func() {
			if status == account.TokenInvalid {
				output.Warning("%s Submitting anyway.", account.MsgInvalidLink)
			}
		}
		warnInvalid()
		if useForms() {
			err = runForm(huh.NewGroup(
				huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&form.Password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&form.Confirm),
			).Title("Reset password").Description("At least 8 characters with upper case, lower case and a digit"))
		} else {
			if form.Password, err = readSecret("New password"); err == nil {
				form.Confirm, err = readSecret("Confirm password")
			}
		}
		if err != nil {
			return err
		}
		if status != account.TokenInvalid {
			poll()
			warnInvalid()
		}

		if err := a.accounts.Reset(ctx, form); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Password reset. You can now log in with your new password.")
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("email", "", "Account email")
	authStatusCmd.Flags().Bool("json", false, "JSON output")
	authResetCmd.Flags().String("token", "", "Reset token from the email link")

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authForgotCmd, authResetCmd)
	rootCmd.AddCommand(authCmd)
}
