package state

import "errors"

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrUserInAnotherGame = errors.New("user already joined another game")
	ErrJoinFailed        = errors.New("could not join game")
)
