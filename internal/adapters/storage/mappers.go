package storage

import (
	"github.com/pombredanne/pullpo/internal/domain"
)

// repositoryModelToDomain converts a RepositoryModel (GORM) to
// domain.Repository. Pull requests are not loaded; the sync engine only
// needs the repository identity.
func repositoryModelToDomain(m RepositoryModel) domain.Repository {
	return domain.Repository{
		FullName: m.FullName,
		Name:     m.Name,
		Owner:    m.Owner,
		URL:      m.URL,
	}
}

// userModelToDomain converts a UserModel (GORM) to domain.User
func userModelToDomain(m UserModel) domain.User {
	return domain.User{
		AvatarURL: m.AvatarURL,
		Email:     m.Email,
		Login:     m.Login,
		Name:      m.Name,
		Type:      m.Type,
		URL:       m.URL,
	}
}
