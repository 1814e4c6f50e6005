// Package ui embeds the web assets so the server binary is self-contained.
package ui

import "embed"

//go:embed static templates
var Files embed.FS
