// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateUser validates a User according to domain rules.
//
// Validation rules:
//   - Username must not be blank
//   - Points and Level must not be negative
//
// NOT validated:
//   - ID (0 is valid before the sequence assigns one)
func ValidateUser(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidUser)
	}

	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyUsername)
	}

	if user.Points < 0 || user.Level < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrNegativeCounter)
	}

	return nil
}

// ValidatePet validates a Pet according to domain rules.
//
// Validation rules:
//   - OwnerId must be set
//   - Name must not be blank
func ValidatePet(pet *Pet) error {
	if pet == nil {
		return fmt.Errorf("%w: pet is nil", ErrInvalidPet)
	}

	if pet.OwnerId == 0 {
		return fmt.Errorf("%w: owner %w", ErrInvalidPet, ErrMissingID)
	}

	if strings.TrimSpace(pet.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPet, ErrEmptyPetName)
	}

	return nil
}

// ValidatePost validates a Post according to domain rules.
//
// Validation rules:
//   - AuthorId must be set
//   - Content may be empty only when media is present
//   - Counters must not be negative
func ValidatePost(post *Post) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}

	if post.AuthorId == 0 {
		return fmt.Errorf("%w: author %w", ErrInvalidPost, ErrMissingID)
	}

	if strings.TrimSpace(post.Content) == "" && len(post.MediaUrls) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyContent)
	}

	if post.LikesCount < 0 || post.CommentsCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrNegativeCounter)
	}

	return nil
}

// ValidateComment validates a Comment according to domain rules.
//
// Validation rules:
//   - PostId and AuthorId must be set
//   - Content must not be blank
func ValidateComment(comment *Comment) error {
	if comment == nil {
		return fmt.Errorf("%w: comment is nil", ErrInvalidComment)
	}

	if comment.PostId == 0 {
		return fmt.Errorf("%w: post %w", ErrInvalidComment, ErrMissingID)
	}

	if comment.AuthorId == 0 {
		return fmt.Errorf("%w: author %w", ErrInvalidComment, ErrMissingID)
	}

	if strings.TrimSpace(comment.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidComment, ErrEmptyContent)
	}

	return nil
}
