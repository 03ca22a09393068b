package repository

import "blogpulse/internal/storage"

type Repositories struct {
	User         UserRepository
	Comment      CommentRepository
	Conversation ConversationRepository
	Message      MessageRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Comment:      NewCommentRepository(db),
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
	}
}
