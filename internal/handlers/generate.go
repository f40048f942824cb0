package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourceful-energy/tariff-service/internal/export"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GenerateRequest represents the body for the export endpoints
type GenerateRequest struct {
	Tariffs      *rise.TariffsResponse `json:"tariffs" binding:"required"`
	CompanyName  string                `json:"companyName"`
	CompanyOrgNo string                `json:"companyOrgNo"`
}

func (r *GenerateRequest) companyName() string {
	if r.CompanyName != "" {
		return r.CompanyName
	}
	if len(r.Tariffs.Tariffs) > 0 {
		return r.Tariffs.Tariffs[0].CompanyName
	}
	return "Elnätsbolag"
}

// GenerateExcel renders a tariff document as a styled Excel workbook
// POST /api/generate/excel
func GenerateExcel(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := export.Excel(req.Tariffs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Excel-filen kunde inte skapas"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.ExcelFilename(req.companyName())+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GeneratePackage renders a tariff document as a deployable API package
// POST /api/generate/package
func GeneratePackage(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := export.Bundle(req.Tariffs, req.companyName(), req.CompanyOrgNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Paketet kunde inte skapas"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BundleFilename(req.companyName())+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// GenerateOpenAPI returns the OpenAPI description of a published tariff API
// POST /api/generate/openapi
func GenerateOpenAPI(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, export.OpenAPISpec(req.companyName(), req.CompanyOrgNo))
}
