package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxChannelIDLen  = 36 // channels.channel_id UUID text form
	MaxExternalIDLen = 64 // channels.external_id VARCHAR(64)
	MinReportDays    = 1
	MaxReportDays    = 90
)

var (
	// channelIDRe matches internal channel IDs: UUIDs, lowercase hex and dashes.
	channelIDRe = regexp.MustCompile(`^[0-9a-f-]+$`)
	// externalIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
	externalIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that an internal channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 36 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateExternalID checks that an upstream channel ID is well-formed.
func ValidateExternalID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "externalId is required"
	}
	if len(id) > MaxExternalIDLen {
		return "", "externalId must be at most 64 characters"
	}
	if !externalIDRe.MatchString(id) {
		return "", "externalId contains invalid characters"
	}
	return id, ""
}

// ValidateReportDays clamps the daily report window to its allowed range.
// Zero means "not provided" and picks the default.
func ValidateReportDays(days, fallback int) int {
	if days == 0 {
		return fallback
	}
	if days < MinReportDays {
		return MinReportDays
	}
	if days > MaxReportDays {
		return MaxReportDays
	}
	return days
}
