package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit from the query string. The boolean is
// false when the caller asked for neither, in which case the full listing is
// returned unpaged.
func ParsePagination(c *fiber.Ctx) (PaginationParams, bool) {
	rawPage, rawLimit := c.Query("page"), c.Query("limit")
	requested := rawPage != "" || rawLimit != ""

	page := parseIntDefault(rawPage, 1)
	limit := parseIntDefault(rawLimit, 20)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	// Keep (page-1)*limit within int.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, requested
}

// Window returns the [start, end) bounds of the requested page within a
// listing of total items.
func (p PaginationParams) Window(total int) (int, int) {
	start := p.Offset
	if start < 0 || start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
