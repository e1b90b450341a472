package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/machinebox/graphql"
)

// UserResponse represents the GraphQL user response
type UserResponse struct {
	User struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// UserService handles communication with the upstream user service
type UserService struct {
	client  *graphql.Client
	baseURL string
}

// NewUserService creates a new user service client
func NewUserService() *UserService {
	baseURL := os.Getenv("USER_SERVICE_URL")

	return &UserService{
		client:  graphql.NewClient(baseURL),
		baseURL: baseURL,
	}
}

// GetUserByID fetches a user by their ID
func (s *UserService) GetUserByID(userID string) (*UserResponse, error) {
	req := graphql.NewRequest(`
        query GetUser($userId: ID!) {
            user(userId: $userId) {
                userId
                username
                email
                role
            }
        }
    `)
	req.Var("userId", userID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var response UserResponse
	if err := s.client.Run(ctx, req, &response); err != nil {
		log.Printf("GraphQL request to %s failed: %v", s.baseURL, err)
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if response.User.UserID == "" {
		return nil, fmt.Errorf("user not found with ID: %s", userID)
	}

	return &response, nil
}
