// Package views holds the HTML pages of the certificate tool as templ
// components. The *_templ.go files are generated from the .templ sources
// with `templ generate`.
package views
