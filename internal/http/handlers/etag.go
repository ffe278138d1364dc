package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag answers 304 when the client already holds this payload.
// maxAge is written as a public Cache-Control hint when positive.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}, maxAge int) {
	b, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(b)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	if maxAge > 0 {
		ctx.Header("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
	}

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", b)
}

func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, part := range strings.Split(header, ",") {
		// weak validators (W/"abc") compare equal for GET
		v := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if v == current {
			return true
		}
	}
	return false
}
