package portal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// Brand is the portal title shown in the header and footer.
const Brand = "THE JAMALPUR CHAMBER OF COMMERCE AND INDUSTRY"

// Contact details shown in the footer.
const (
	ContactEmail   = "jamalpurchamber@gmail.com"
	ContactPhone   = "+8801922348844"
	ContactAddress = "New Bus Terminal Road, BASIC Area, Jamalpur, Dhaka"
	CopyrightYear  = 2024
)

// Link is a named route.
type Link struct {
	Name string
	Path string
}

// RouteLogout is the pseudo-route of the nav logout action.
const RouteLogout = "logout"

// NavLinks returns the header links for user. A nil user is logged out.
func NavLinks(user *models.User) []Link {
	links := []Link{
		{"Home", "/"},
		{"About", "/about"},
		{"Notice", "/notice"},
	}
	if user == nil {
		return append(links, Link{"Login", "/login"}, Link{"Register", "/register"})
	}
	links = append(links, Link{"Form", "/form"})
	if user.Admin() {
		links = append(links, Link{"Admin", "/admin"})
	}
	return append(links, Link{"Logout", RouteLogout})
}

// FooterQuickLinks are the footer's Quick Links column.
var FooterQuickLinks = []Link{
	{"Home", "/"},
	{"About", "/about"},
	{"Notice", "/notice"},
	{"Login", "/login"},
	{"Register", "/register"},
}

// FooterSupportLinks are the footer's Support column.
var FooterSupportLinks = []Link{
	{"Help Center", "/help"},
	{"Contact Us", "/contact"},
	{"Privacy Policy", "/privacy"},
	{"Terms of Service", "/terms"},
	{"FAQ", "/faq"},
}

// FooterBottomLinks follow the copyright line.
var FooterBottomLinks = []Link{
	{"Privacy", "/privacy"},
	{"Terms", "/terms"},
	{"Cookies", "/cookies"},
}

// Copyright is the footer's bottom line text.
func Copyright() string {
	return fmt.Sprintf("© %d %s. All rights reserved.", CopyrightYear, Brand)
}

// RenderNav renders the header bar. active is the current route.
func RenderNav(user *models.User, active string, width int) string {
	brand := brandStyle.Render(Brand)

	var items []string
	for i, l := range NavLinks(user) {
		label := fmt.Sprintf("%d %s", i+1, l.Name)
		if l.Path == active {
			items = append(items, activeNavStyle.Render(label))
		} else {
			items = append(items, navStyle.Render(label))
		}
	}
	if user != nil {
		name := user.Name
		if name == "" {
			name = user.Email
		}
		who := userStyle.Render(name)
		if user.Admin() {
			who += " " + adminBadgeStyle.Render("Admin")
		}
		items = append(items, who)
	}

	bar := strings.Join(items, " ")
	return lipgloss.JoinVertical(lipgloss.Left, truncate(brand, width), truncate(bar, width))
}

// RenderFooter renders the three footer columns and the bottom line.
func RenderFooter(width int) string {
	column := func(title string, lines []string) string {
		body := append([]string{footerHeadStyle.Render(title)}, lines...)
		return footerColStyle.Render(strings.Join(body, "\n"))
	}
	names := func(links []Link) []string {
		out := make([]string, len(links))
		for i, l := range links {
			out[i] = l.Name
		}
		return out
	}

	cols := []string{
		column("Quick Links", names(FooterQuickLinks)),
		column("Support", names(FooterSupportLinks)),
		column("Contact Info", []string{ContactEmail, ContactPhone, ContactAddress}),
	}
	var top string
	if width >= 3*(footerColWidth+2) {
		top = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	} else {
		top = lipgloss.JoinVertical(lipgloss.Left, cols...)
	}

	bottom := truncate(Copyright(), width) + "\n" + subtleStyle.Render(strings.Join(names(FooterBottomLinks), " · "))
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}
