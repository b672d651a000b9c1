package mapper

import (
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
)

func UserToResponse(user models.User) response.UserResponseDTO {
	return response.UserResponseDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Active:      user.Active,
	}
}
