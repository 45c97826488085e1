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

import "errors"

// Domain validation errors
var (
	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidPet indicates a Pet failed validation.
	ErrInvalidPet = errors.New("invalid pet")

	// ErrInvalidPost indicates a Post failed validation.
	ErrInvalidPost = errors.New("invalid post")

	// ErrInvalidComment indicates a Comment failed validation.
	ErrInvalidComment = errors.New("invalid comment")

	// ErrInvalidRelation indicates an unknown Relation value.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrEmptyContent indicates the content is empty after trimming.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyUsername indicates the Username field is empty.
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrEmptyPetName indicates the pet Name field is empty.
	ErrEmptyPetName = errors.New("pet name cannot be empty")

	// ErrMissingID indicates a required reference ID is zero.
	ErrMissingID = errors.New("id cannot be zero")

	// ErrNegativeCounter indicates a denormalized counter below zero.
	ErrNegativeCounter = errors.New("counter cannot be negative")
)

// Record decoding errors
var (
	// ErrUnknownSchema indicates a record without a valid schema version prefix.
	ErrUnknownSchema = errors.New("unknown schema version")

	// ErrMalformedRecord indicates a record whose fields cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
