package shared

import "github.com/gin-gonic/gin"

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ReadPagination 从查询参数读取分页
func ReadPagination(c *gin.Context) (int, int) {
	return NormalizePagination(QueryInt(c, "page", 1), QueryInt(c, "page_size", 20))
}
