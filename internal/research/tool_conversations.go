package research

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/archive"
)

type ConversationListOutput struct {
	Count         int                    `json:"count"`
	Conversations []archive.Conversation `json:"conversations"`
}

type ConversationGetInput struct {
	ID int64 `json:"id" jsonschema:"Conversation id"`
}

type ConversationDeleteInput struct {
	ID int64 `json:"id" jsonschema:"Conversation id"`
}

type ConversationDeleteOutput struct {
	Deleted int64 `json:"deleted"`
}

type NoteSaveInput struct {
	ConversationID int64  `json:"conversation_id" jsonschema:"Conversation the note belongs to"`
	Content        string `json:"content" jsonschema:"Note text; replaces any previous note on the conversation"`
}

type NoteSaveOutput struct {
	ConversationID int64 `json:"conversation_id"`
}

func registerConversationTools(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "conversation_list",
		Description: "List all conversations in the active research store, newest first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ConversationListOutput, error) {
		convs, err := d.Store.ListConversations()
		if err != nil {
			return nil, ConversationListOutput{}, err
		}
		return nil, ConversationListOutput{Count: len(convs), Conversations: convs}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "conversation_get",
		Description: "Fetch one conversation with its full message history, provenance and note.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ConversationGetInput) (*mcp.CallToolResult, archive.Conversation, error) {
		c, err := d.Store.GetConversation(input.ID)
		if err != nil {
			return nil, archive.Conversation{}, fmt.Errorf("conversation %d: %w", input.ID, err)
		}
		return nil, *c, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "conversation_delete",
		Description: "Delete a conversation along with its messages and note.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ConversationDeleteInput) (*mcp.CallToolResult, ConversationDeleteOutput, error) {
		if err := d.Store.DeleteConversation(input.ID); err != nil {
			return nil, ConversationDeleteOutput{}, fmt.Errorf("conversation %d: %w", input.ID, err)
		}
		return nil, ConversationDeleteOutput{Deleted: input.ID}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "note_save",
		Description: "Attach or replace the single curated note on a conversation. Notes are searched first during archive retrieval, so a good note makes past research easy to resurface.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input NoteSaveInput) (*mcp.CallToolResult, NoteSaveOutput, error) {
		if input.Content == "" {
			return nil, NoteSaveOutput{}, fmt.Errorf("content is required")
		}
		if err := d.Store.SaveNote(input.ConversationID, input.Content); err != nil {
			return nil, NoteSaveOutput{}, err
		}
		return nil, NoteSaveOutput{ConversationID: input.ConversationID}, nil
	})
}
