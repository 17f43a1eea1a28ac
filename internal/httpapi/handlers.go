package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autodialer-platform/internal/auth"
	"autodialer-platform/internal/command"
	"autodialer-platform/internal/dialer"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth   *auth.Manager
	Dialer *dialer.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Dispatch ---

type singleCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// DispatchSingle places one call. A dispatch failure is not an HTTP
// failure: the attempt is recorded and reported in the body, so only
// missing input gets a 4xx.
func (h Handlers) DispatchSingle(c *gin.Context) {
	var req singleCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone number required"})
		return
	}

	out, err := h.Dialer.Dispatch(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call_sid": out.ProviderSID, "status": "initiated"})
}

type batchCallRequest struct {
	PhoneNumbers []string `json:"phone_numbers"`
	Message      string   `json:"message"`
}

type batchCallResult struct {
	Number  string `json:"number"`
	Success bool   `json:"success"`
	CallSID string `json:"call_sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DispatchBatch places one call per number. Per-item failures land in
// the item; the request only fails outright on an empty list.
func (h Handlers) DispatchBatch(c *gin.Context) {
	var req batchCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	items, err := h.Dialer.DispatchBatch(c.Request.Context(), req.PhoneNumbers, req.Message)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone numbers required"})
		return
	}

	results := make([]batchCallResult, len(items))
	for i, item := range items {
		r := batchCallResult{Number: item.Destination}
		if item.Err != nil {
			r.Error = item.Err.Error()
		} else {
			r.Success = true
			r.CallSID = item.Outcome.ProviderSID
		}
		results[i] = r
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

type commandCallRequest struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// DispatchFromCommand extracts a number from a natural-language
// instruction and dispatches it. A parse miss is the caller's mistake
// (400); a dispatch failure is reported like DispatchSingle.
func (h Handlers) DispatchFromCommand(c *gin.Context) {
	var req commandCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	parsed, out, err := h.Dialer.DispatchFromCommand(c.Request.Context(), req.Command, req.Message)
	if errors.Is(err, command.ErrNoCommand) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "could not understand the command, try: 'call +91XXXXXXXXXX'",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error(), "parsed_number": parsed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call_sid": out.ProviderSID, "status": "initiated", "parsed_number": parsed})
}

// --- Records ---

func (h Handlers) ListCalls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.Dialer.ListRecords()})
}

func (h Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Dialer.Stats())
}

// ExportCSV streams the current snapshot as a CSV attachment. The
// snapshot is taken up front so the lock is never held during writes.
func (h Handlers) ExportCSV(c *gin.Context) {
	records := h.Dialer.ListRecords()

	filename := fmt.Sprintf("call_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Timestamp", "Phone Number", "Status", "Message", "Call SID", "Duration"})
	for _, r := range records {
		sid := r.ProviderSID
		if sid == "" {
			sid = "N/A"
		}
		_ = w.Write([]string{
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Destination,
			string(r.State),
			r.Message,
			sid,
			strconv.Itoa(r.DurationSeconds),
		})
	}
	w.Flush()
}

// UploadCSV extracts phone numbers from the first column of an uploaded
// CSV. It only extracts; dialing the numbers is a separate batch call.
func (h Handlers) UploadCSV(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "no file uploaded"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "file must be CSV"})
		return
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var numbers []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid csv"})
			return
		}
		if len(row) == 0 {
			continue
		}
		if n := strings.TrimSpace(row[0]); n != "" {
			numbers = append(numbers, n)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "phone_numbers": numbers, "count": len(numbers)})
}
