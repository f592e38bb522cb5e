package httpserver

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/silverlyra/portico/domain/rooms"
)

// RegisterRequest is the body of POST /api/v1/users.
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse carries the new user and their bearer token.
type RegisterResponse struct {
	User  *rooms.User `json:"user"`
	Token string      `json:"token"`
}

// UpdateUserRequest is the body of PATCH /api/v1/users/:id.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// RoomResponse carries a room plus the role the caller would hold in it.
type RoomResponse struct {
	Room *rooms.Room `json:"room"`
	Role rooms.Role  `json:"role"`
}

func (m *Module) handleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return rooms.Errf(rooms.KindInvalidInput, "malformed request body")
	}

	user, err := m.registry.CreateUser(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	token, err := m.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{User: user, Token: token})
}

func (m *Module) handleGetUser(c *fiber.Ctx) error {
	user, err := m.registry.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (m *Module) handleUpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != actorFrom(c) {
		return rooms.Errf(rooms.KindForbidden, "cannot modify another user")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return rooms.Errf(rooms.KindInvalidInput, "malformed request body")
	}
	if err := m.registry.UpdateUser(c.UserContext(), id, req.Name); err != nil {
		return err
	}
	user, err := m.registry.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (m *Module) handleCreateRoom(c *fiber.Ctx) error {
	room, err := m.registry.CreateRoom(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(RoomResponse{Room: room, Role: rooms.RoleHost})
}

func (m *Module) handleGetRoom(c *fiber.Ctx) error {
	room, err := m.registry.GetRoomBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	// Resolving an invite keeps the room alive until the caller connects.
	if err := m.registry.TouchRoom(c.UserContext(), room.ID); err != nil {
		slog.Warn("Failed to refresh room retention", "room", room.ID, "error", err)
	}
	return c.JSON(RoomResponse{Room: room, Role: rooms.RoleOf(room, actorFrom(c))})
}
