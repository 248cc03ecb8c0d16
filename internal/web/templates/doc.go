// Package templates holds the templ components rendered by the web server.
// Edit the .templ files and regenerate the _templ.go files.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate
