package handlers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/auth"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
)

type ImportHandler struct {
	db *gorm.DB
}

func NewImportHandler(db *gorm.DB) *ImportHandler {
	return &ImportHandler{db: db}
}

// ImportResult represents the result of a user import operation
type ImportResult struct {
	Username string `json:"username"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ImportUsers handles the POST /import-users endpoint: bulk-loads users
// from a CSV with username, real_name, password columns.
func (h *ImportHandler) ImportUsers(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Printf("Error getting file from request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No file was uploaded or invalid file field. Please use 'file' as the form field name.",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") &&
		header.Header.Get("Content-Type") != "text/csv" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Uploaded file must be a CSV file",
		})
		return
	}

	reader := csv.NewReader(bufio.NewReader(file))
	reader.TrimLeadingSpace = true

	csvHeaders, err := reader.Read()
	if err != nil {
		log.Printf("Error reading CSV header: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid CSV format: could not read header",
		})
		return
	}

	expectedHeaders := []string{"username", "real_name", "password"}
	if !validateHeaders(csvHeaders, expectedHeaders) {
		log.Printf("Invalid CSV headers: %v", csvHeaders)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid CSV format: header must contain username, real_name, password",
			"found":   csvHeaders,
		})
		return
	}

	const maxWorkers = 5
	jobs := make(chan []string, 100)
	results := make(chan ImportResult, 100)
	var wg sync.WaitGroup

	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go h.worker(jobs, results, &wg)
	}

	// Producer: read CSV rows and send to workers
	rowCount := 0
	go func() {
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Printf("Error reading CSV row %d: %v", rowCount+1, err)
				continue
			}
			rowCount++
			jobs <- record
		}
		log.Printf("Finished reading CSV file, found %d data rows", rowCount)
		close(jobs)
	}()

	var allResults []ImportResult
	var successCount, failCount int
	resultsDone := make(chan bool)

	go func() {
		for result := range results {
			allResults = append(allResults, result)
			if result.Success {
				successCount++
			} else {
				failCount++
			}
		}
		resultsDone <- true
	}()

	wg.Wait()
	close(results)
	<-resultsDone

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Imported %d users, %d succeeded, %d failed", len(allResults), successCount, failCount),
		"data": gin.H{
			"total":    len(allResults),
			"success":  successCount,
			"failed":   failCount,
			"results":  allResults,
			"fileName": header.Filename,
		},
	})
}

// worker processes user creation jobs
func (h *ImportHandler) worker(jobs <-chan []string, results chan<- ImportResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for record := range jobs {
		if len(record) < 3 {
			results <- ImportResult{
				Success: false,
				Error:   "Invalid record format: insufficient fields",
			}
			continue
		}

		username := strings.TrimSpace(record[0])
		realName := strings.TrimSpace(record[1])
		password := strings.TrimSpace(record[2])

		if username == "" || realName == "" || password == "" {
			results <- ImportResult{
				Username: username,
				Success:  false,
				Error:    "Missing required fields",
			}
			continue
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			results <- ImportResult{
				Username: username,
				Success:  false,
				Error:    err.Error(),
			}
			continue
		}

		user := models.User{
			Username:     username,
			RealName:     realName,
			PasswordHash: hash,
		}
		if err := h.db.Create(&user).Error; err != nil {
			results <- ImportResult{
				Username: username,
				Success:  false,
				Error:    err.Error(),
			}
			continue
		}

		results <- ImportResult{
			Username: username,
			Success:  true,
		}

		log.Printf("Created user: %s with ID: %s", username, user.ID)
	}
}

// validateHeaders checks if all expected headers are present in the actual headers
func validateHeaders(actual []string, expected []string) bool {
	if len(actual) < len(expected) {
		log.Printf("Header count mismatch: expected %d, got %d", len(expected), len(actual))
		return false
	}

	lowerActual := make([]string, len(actual))
	for i, h := range actual {
		// Remove BOM (Byte Order Mark) if present
		h = strings.TrimPrefix(h, "\ufeff")
		lowerActual[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, expectedHeader := range expected {
		expectedLower := strings.ToLower(expectedHeader)
		found := false
		for _, actualHeader := range lowerActual {
			if expectedLower == actualHeader {
				found = true
				break
			}
		}
		if !found {
			log.Printf("Missing expected header: '%s'", expectedHeader)
			return false
		}
	}

	return true
}
