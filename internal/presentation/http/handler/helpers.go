package handler

import (
	"strconv"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// paramUUID parses a path parameter, writing a 400 on failure
func paramUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(pagination.DefaultPerPage)))
	params := &pagination.PaginationParams{Page: page, PerPage: perPage}
	params.Validate()
	return params
}
