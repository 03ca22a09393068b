package service

import (
	"blogpulse/internal/repository"
	"blogpulse/pkg/ai"
)

type Services struct {
	User    *UserService
	Chat    *ChatService
	Gateway *RoomGateway
}

func NewServices(repos *repository.Repositories, provider ai.Provider, defaultModel string) *Services {
	registry := NewRoomRegistry()
	authenticator := NewConnectionAuthenticator(JWTVerifier{})

	return &Services{
		User:    NewUserService(repos.User),
		Chat:    NewChatService(provider, repos.Conversation, repos.Message, defaultModel),
		Gateway: NewRoomGateway(registry, authenticator, repos.Comment),
	}
}
