package services

import (
	"context"
	"fmt"
	"strings"
)

//go:generate templ generate -f preview.templ

// logoStyle prints the logo at its document size.
func logoStyle(l *Logo) string {
	return fmt.Sprintf("width:%.1fmm;height:%.1fmm", l.WidthMM, l.HeightMM)
}

// RenderPreview is a convenience for callers that need the HTML as a string.
func RenderPreview(ctx context.Context, blocks []Block) (string, error) {
	var sb strings.Builder
	if err := Preview(blocks).Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
