package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/pizzabot/internal/api/dto"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	userService service.IUserService
	logger      *zerolog.Logger
}

func NewUserHandler(userService service.IUserService, logger *zerolog.Logger) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func convertUserModelToDTO(u *model.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		api.ErrorJSON(w, http.StatusInternalServerError, nil, er.ErrStrMap[er.InternalErrorCode])
		return
	}

	res := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		res = append(res, convertUserModelToDTO(&users[i]))
	}
	api.SuccessJSON(w, res, &api.MetaData{Page: 1, PageSize: len(res), TotalCount: int64(len(res))})
}

// GetUser GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, er.New(er.BadRequestCode, "invalid user id"), er.ErrStrMap[er.BadRequestCode])
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.ErrorJSON(w, http.StatusNotFound, er.New(er.NotFoundCode, "user not found"), er.ErrStrMap[er.NotFoundCode])
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		api.ErrorJSON(w, http.StatusInternalServerError, nil, er.ErrStrMap[er.InternalErrorCode])
		return
	}
	api.SuccessJSONWithoutMeta(w, convertUserModelToDTO(user))
}
