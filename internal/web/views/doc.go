// Package views renders the HTML dashboard.
//
// The components are written in dashboard.templ; dashboard_templ.go is
// generated from it with `templ generate` and must not be edited by hand.
package views

//go:generate templ generate
