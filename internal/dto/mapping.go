package dto

import "ragchat-be/internal/entity"

func NewChatResponse(c *entity.Chat) *ChatResponse {
	return &ChatResponse{
		Id:          c.Id,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func NewChatListResponse(chats []*entity.ChatWithCount) []*ChatResponse {
	res := make([]*ChatResponse, len(chats))
	for i, c := range chats {
		count := c.MessageCount
		res[i] = NewChatResponse(&c.Chat)
		res[i].MessageCount = &count
	}
	return res
}

func NewMessageResponse(m *entity.Message) *MessageResponse {
	if m == nil {
		return nil
	}
	return &MessageResponse{
		Id:         m.Id,
		ChatId:     m.ChatId,
		ParentId:   m.ParentId,
		Role:       m.Role.String(),
		Content:    m.Content,
		Metadata:   m.Metadata,
		TokenCount: m.TokenCount,
		Depth:      m.Depth,
		Path:       m.Path,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func NewMessageListResponse(messages []*entity.Message) []*MessageResponse {
	res := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		res[i] = NewMessageResponse(m)
	}
	return res
}

func NewMessageTreeResponse(nodes []*entity.MessageNode) []*MessageNodeResponse {
	res := make([]*MessageNodeResponse, len(nodes))
	for i, n := range nodes {
		res[i] = &MessageNodeResponse{
			MessageResponse: *NewMessageResponse(n.Message),
			Children:        NewMessageTreeResponse(n.Children),
		}
	}
	return res
}

func NewDocumentResponse(d *entity.Document) *DocumentResponse {
	return &DocumentResponse{
		Id:        d.Id,
		Title:     d.Title,
		SourceUrl: d.SourceUrl,
		FilePath:  d.FilePath,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func NewSearchResultsResponse(results []*entity.SearchResult) []*SearchResultResponse {
	res := make([]*SearchResultResponse, len(results))
	for i, r := range results {
		res[i] = &SearchResultResponse{
			Content:    r.Content,
			ChunkIndex: r.ChunkIndex,
			DocumentId: r.DocumentId,
			Title:      r.Title,
			SourceUrl:  r.SourceUrl,
			Similarity: r.Similarity,
		}
	}
	return res
}
