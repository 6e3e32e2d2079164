package controller

import (
	"io"
	"strings"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/serverutils"
	"ragchat-be/internal/service"
	"ragchat-be/pkg/parser"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type documentController struct {
	ragService service.IRagService
}

func NewDocumentController(ragService service.IRagService) IDocumentController {
	return &documentController{ragService: ragService}
}

func (c *documentController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/documents")
	h.Use(authMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Delete("/:id", c.Delete)

	rag := r.Group("/rag")
	rag.Use(authMiddleware)
	rag.Post("/search", c.Search)
	rag.Get("/health", c.Health)
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	documents, total, err := c.ragService.GetUserDocuments(ctx.UserContext(), userId, limit, offset)
	if err != nil {
		return err
	}

	res := &dto.DocumentListResponse{
		Documents: make([]*dto.DocumentResponse, 0, len(documents)),
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}
	for _, d := range documents {
		res.Documents = append(res.Documents, dto.NewDocumentResponse(d))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get documents", res))
}

// Create accepts either a JSON body or a multipart upload in the "file" field.
func (c *documentController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	if strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.upload(ctx)
	}

	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	id, err := c.ragService.AddDocument(ctx.UserContext(), userId, service.DocumentInput{
		Title:     req.Title,
		Content:   req.Content,
		SourceUrl: req.SourceUrl,
		FileType:  req.FileType,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create document", &dto.CreateDocumentResponse{Id: id}))
}

func (c *documentController) upload(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	if err := parser.ValidateFile(fileHeader.Filename, fileHeader.Size); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to open file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read file")
	}

	id, err := c.ragService.UploadDocument(ctx.UserContext(), userId, fileHeader.Filename, content)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", &dto.CreateDocumentResponse{Id: id}))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	if _, err := c.ragService.DeleteDocument(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	results, err := c.ragService.Search(ctx.UserContext(), userId, req.Query, req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search documents", &dto.SearchResponse{
		Query:   req.Query,
		Results: dto.NewSearchResultsResponse(results),
	}))
}

func (c *documentController) Health(ctx *fiber.Ctx) error {
	model, dimension := c.ragService.EmbeddingInfo()

	return ctx.JSON(serverutils.SuccessResponse("Success check embedding service", &dto.RagHealthResponse{
		EmbeddingService: c.ragService.CheckEmbeddingService(ctx.UserContext()),
		Model:            model,
		Dimension:        dimension,
	}))
}
