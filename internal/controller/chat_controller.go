package controller

import (
	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/serverutils"
	"ragchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	Completion(ctx *fiber.Ctx) error
	ShowMessage(ctx *fiber.Ctx) error
	UpdateMessage(ctx *fiber.Ctx) error
	RegenerateMessage(ctx *fiber.Ctx) error
	DeleteMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatTree    service.IChatTreeService
	chatService service.IChatService
}

func NewChatController(chatTree service.IChatTreeService, chatService service.IChatService) IChatController {
	return &chatController{
		chatTree:    chatTree,
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/chats")
	h.Use(authMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get("/stats", c.Stats)
	h.Get("/:id", c.Show)
	h.Patch("/:id", c.Update)
	h.Delete("/:id", c.Delete)
	h.Get("/:id/messages", c.GetMessages)
	h.Post("/:id/messages", c.AddMessage)
	h.Post("/:id/completions", c.Completion)

	m := r.Group("/messages")
	m.Use(authMiddleware)
	m.Get("/:id", c.ShowMessage)
	m.Patch("/:id", c.UpdateMessage)
	m.Post("/:id/regenerate", c.RegenerateMessage)
	m.Delete("/:id", c.DeleteMessage)
}

func (c *chatController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	chats, err := c.chatTree.GetUserChats(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all chats", dto.NewChatListResponse(chats)))
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	chat, err := c.chatTree.CreateChat(ctx.UserContext(), userId, req.Title, req.Description)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat", dto.NewChatResponse(chat)))
}

func (c *chatController) Stats(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	stats, err := c.chatTree.GetStats(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat stats", &dto.ChatStatsResponse{
		TotalChats:    stats.TotalChats,
		TotalMessages: stats.TotalMessages,
		TotalTokens:   stats.TotalTokens,
	}))
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	chat, err := c.chatTree.GetChat(ctx.UserContext(), id, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", dto.NewChatResponse(chat)))
}

func (c *chatController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	chat, err := c.chatTree.UpdateChat(ctx.UserContext(), id, userId, req.Title, req.Description)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update chat", dto.NewChatResponse(chat)))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	deleted, err := c.chatTree.DeleteChat(ctx.UserContext(), id, userId)
	if err != nil {
		return err
	}
	if !deleted {
		return fiber.NewError(fiber.StatusNotFound, "chat not found")
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat", nil))
}

// GetMessages renders the chat as a tree (default), a linear list, or a single branch.
func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	switch ctx.Query("format", "tree") {
	case "tree":
		tree, err := c.chatTree.GetChatMessages(ctx.UserContext(), id, userId)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success get messages", dto.NewMessageTreeResponse(tree)))

	case "linear":
		messages, err := c.chatTree.GetLinearMessages(ctx.UserContext(), id, userId)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success get messages", dto.NewMessageListResponse(messages)))

	case "branch":
		var leafId *uuid.UUID
		if raw := ctx.Query("leafId"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid leafId")
			}
			leafId = &parsed
		}
		messages, err := c.chatTree.GetBranchMessages(ctx.UserContext(), id, userId, leafId)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success get messages", dto.NewMessageListResponse(messages)))
	}

	return fiber.NewError(fiber.StatusBadRequest, "format must be one of tree, linear, branch")
}

func (c *chatController) AddMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.AddMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	role, err := entity.ParseMessageRole(req.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// AddMessage itself is not user-scoped.
	if _, err := c.chatTree.GetChat(ctx.UserContext(), id, userId); err != nil {
		return err
	}

	message, err := c.chatTree.AddMessage(ctx.UserContext(), service.NewMessage{
		ChatId:   id,
		Role:     role,
		Content:  req.Content,
		ParentId: req.ParentId,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add message", dto.NewMessageResponse(message)))
}

func (c *chatController) Completion(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Completion(ctx.UserContext(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) ShowMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	message, err := c.chatTree.GetMessage(ctx.UserContext(), id, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show message", dto.NewMessageResponse(message)))
}

func (c *chatController) UpdateMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	var message *entity.Message
	if req.Action == "regenerate" {
		message, err = c.chatTree.RegenerateMessage(ctx.UserContext(), id, userId, req.Content, req.Metadata)
	} else {
		message, err = c.chatTree.EditMessage(ctx.UserContext(), id, userId, req.Content, req.Metadata)
	}
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success update message", dto.NewMessageResponse(message)))
}

func (c *chatController) RegenerateMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.chatService.RegenerateReply(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success regenerate message", res))
}

func (c *chatController) DeleteMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	deleted, err := c.chatTree.DeleteMessage(ctx.UserContext(), id, userId)
	if err != nil {
		return err
	}
	if !deleted {
		return fiber.NewError(fiber.StatusNotFound, "message not found")
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete message", nil))
}
