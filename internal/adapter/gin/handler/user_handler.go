package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/user"
	pkgerrors "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/errors"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// UserHandler handles HTTP requests for user queries
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// SuffixQuery represents the query string of the suffix endpoints
type SuffixQuery struct {
	Suffix string `form:"suffix"`
	MinAge int    `form:"min_age"`
}

// MinAgeQuery represents the query string of GET /v1/users/first
type MinAgeQuery struct {
	MinAge int `form:"min_age"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Age       int      `json:"age"`
	Interests []string `json:"interests"`
}

// UsersResponse represents an ordered list of users
type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

// CountResponse represents a single count
type CountResponse struct {
	Count int64 `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ListUsers handles GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, toUsersResponse(resp.Users))
}

// GroupByEmailProvider handles GET /v1/users/providers
func (h *UserHandler) GroupByEmailProvider(c *gin.Context) {
	resp, err := h.uc.GroupByEmailProvider(c.Request.Context())
	if err != nil {
		h.handleError(c, "GroupByEmailProvider", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": resp.Counts})
}

// CountInterest handles GET /v1/users/interests/count?interest=
func (h *UserHandler) CountInterest(c *gin.Context) {
	resp, err := h.uc.CountInterest(c.Request.Context(), user.CountInterestRequest{
		Interest: c.Query("interest"),
	})
	if err != nil {
		h.handleError(c, "CountInterest", err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: resp.Count})
}

// DistinctInterests handles GET /v1/users/interests
func (h *UserHandler) DistinctInterests(c *gin.Context) {
	resp, err := h.uc.DistinctInterests(c.Request.Context())
	if err != nil {
		h.handleError(c, "DistinctInterests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interests": resp.Interests})
}

// DuplicatedIDs handles GET /v1/users/ids/duplicated
func (h *UserHandler) DuplicatedIDs(c *gin.Context) {
	resp, err := h.uc.DuplicatedIDs(c.Request.Context())
	if err != nil {
		h.handleError(c, "DuplicatedIDs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": resp.IDs})
}

// DistinctIDs handles GET /v1/users/ids/distinct
func (h *UserHandler) DistinctIDs(c *gin.Context) {
	resp, err := h.uc.DistinctIDs(c.Request.Context())
	if err != nil {
		h.handleError(c, "DistinctIDs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": resp.IDs})
}

// CountByEmailSuffix handles GET /v1/users/emails/count?suffix=
func (h *UserHandler) CountByEmailSuffix(c *gin.Context) {
	resp, err := h.uc.CountByEmailSuffix(c.Request.Context(), user.CountByEmailSuffixRequest{
		Suffix: c.Query("suffix"),
	})
	if err != nil {
		h.handleError(c, "CountByEmailSuffix", err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: resp.Count})
}

// FilterBySuffixAndMinAge handles GET /v1/users/filter?suffix=&min_age=
func (h *UserHandler) FilterBySuffixAndMinAge(c *gin.Context) {
	var q SuffixQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "min_age must be a whole number", err)
		return
	}

	resp, err := h.uc.FilterBySuffixAndMinAge(c.Request.Context(), user.FilterBySuffixAndMinAgeRequest{
		Suffix: q.Suffix,
		MinAge: q.MinAge,
	})
	if err != nil {
		h.handleError(c, "FilterBySuffixAndMinAge", err)
		return
	}
	c.JSON(http.StatusOK, toUsersResponse(resp.Users))
}

// FirstWithMinAge handles GET /v1/users/first?min_age=
func (h *UserHandler) FirstWithMinAge(c *gin.Context) {
	var q MinAgeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "min_age must be a whole number", err)
		return
	}

	resp, err := h.uc.FirstWithMinAge(c.Request.Context(), user.FirstWithMinAgeRequest{MinAge: q.MinAge})
	if err != nil {
		h.handleError(c, "FirstWithMinAge", err)
		return
	}
	if !resp.Found {
		h.handleError(c, "FirstWithMinAge", pkgerrors.NewNotFoundError("user", "no user at or above the minimum age"))
		return
	}
	c.JSON(http.StatusOK, toUserResponse(resp.User))
}

// TrimAllEmails handles POST /v1/users/emails/trim
func (h *UserHandler) TrimAllEmails(c *gin.Context) {
	resp, err := h.uc.TrimAllEmails(c.Request.Context())
	if err != nil {
		h.handleError(c, "TrimAllEmails", err)
		return
	}
	logger.WithContext(c.Request.Context(), h.log).Info("emails trimmed", zap.Int("trimmed", resp.Trimmed))
	c.JSON(http.StatusOK, gin.H{"trimmed": resp.Trimmed})
}

// FullNames handles GET /v1/users/full-names
func (h *UserHandler) FullNames(c *gin.Context) {
	resp, err := h.uc.FullNames(c.Request.Context())
	if err != nil {
		h.handleError(c, "FullNames", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": resp.Names})
}

// FindByIDs handles GET /v1/users/lookup?ids=1,2,7
func (h *UserHandler) FindByIDs(c *gin.Context) {
	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		h.badRequest(c, "ids must be a comma separated list of integers", err)
		return
	}

	resp, err := h.uc.FindByIDs(c.Request.Context(), user.FindByIDsRequest{IDs: ids})
	if err != nil {
		h.handleError(c, "FindByIDs", err)
		return
	}
	c.JSON(http.StatusOK, toUsersResponse(resp.Users))
}

// parseIDs reads "1,2,7". An empty string is an empty list.
func parseIDs(raw string) ([]int64, error) {
	ids := []int64{}
	if strings.TrimSpace(raw) == "" {
		return ids, nil
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toUserResponse(u user.User) UserResponse {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Interests: interests,
	}
}

func toUsersResponse(users []user.User) UsersResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return UsersResponse{Users: out}
}

func (h *UserHandler) badRequest(c *gin.Context, message string, err error) {
	logger.WithContext(c.Request.Context(), h.log).Warn("invalid request",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(pkgerrors.KindValidation),
		Message: message,
	})
}

// handleError writes the response for a failed usecase call.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	appErr := pkgerrors.Classify(err)
	switch appErr.Kind() {
	case pkgerrors.KindValidation:
		log.Warn("request rejected", zap.String("op", op), zap.Error(err))
	case pkgerrors.KindInternal:
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus(), ErrorResponse{
		Error:   string(appErr.Kind()),
		Message: appErr.Public(),
	})
}
