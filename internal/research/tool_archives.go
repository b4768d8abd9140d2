package research

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/archive"
)

type ArchiveSaveInput struct {
	Name string `json:"name" jsonschema:"Snapshot name; .db extension is added automatically"`
}

type ArchiveSaveOutput struct {
	File string `json:"file"`
}

type ArchiveLoadInput struct {
	Name string `json:"name" jsonschema:"Archive file to load as the active store"`
}

type ArchiveLoadOutput struct {
	File string `json:"file"`
}

type ArchiveListOutput struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

func registerArchiveTools(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive_save",
		Description: "Snapshot the active research store into a named archive file. Archived files are included in local search from then on.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ArchiveSaveInput) (*mcp.CallToolResult, ArchiveSaveOutput, error) {
		if input.Name == "" {
			return nil, ArchiveSaveOutput{}, fmt.Errorf("name is required")
		}
		file, err := d.Store.SaveTo(input.Name)
		if err != nil {
			return nil, ArchiveSaveOutput{}, err
		}
		return nil, ArchiveSaveOutput{File: file}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive_load",
		Description: "Load a previously saved archive file as the active store, replacing the current session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ArchiveLoadInput) (*mcp.CallToolResult, ArchiveLoadOutput, error) {
		if input.Name == "" {
			return nil, ArchiveLoadOutput{}, fmt.Errorf("name is required")
		}
		if err := d.Store.LoadFrom(input.Name); err != nil {
			return nil, ArchiveLoadOutput{}, err
		}
		return nil, ArchiveLoadOutput{File: input.Name}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive_list",
		Description: "List the archive files available in the storage directory.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ArchiveListOutput, error) {
		files, err := archive.ListArchiveFiles(d.Store.Dir())
		if err != nil {
			return nil, ArchiveListOutput{}, err
		}
		return nil, ArchiveListOutput{Count: len(files), Files: files}, nil
	})
}
