package service

import "github.com/noah-isme/smart-classroom-api/internal/models"

// newPagination mirrors the repository paging defaults so responses echo the effective page.
func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
