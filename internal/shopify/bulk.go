package shopify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/mjardine/gemsync/internal/models"
)

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const bulkOperationRunMutation = `
mutation bulkOperationRunMutation($mutation: String!, $stagedUploadPath: String!) {
  bulkOperationRunMutation(mutation: $mutation, stagedUploadPath: $stagedUploadPath) {
    bulkOperation {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

const bulkOperationNodeQuery = `
query bulkOperation($id: ID!) {
  node(id: $id) {
    ... on BulkOperation {
      id
      status
      errorCode
      objectCount
      url
    }
  }
}`

// StartBulkUpsert serializes every entity into one JSONL payload,
// stages it, and launches a single asynchronous bulk mutation. All
// groups in the batch ride one remote operation.
func (c *HTTPClient) StartBulkUpsert(ctx context.Context, entities []*models.CatalogEntity, fingerprints map[string]string) (string, error) {
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	for _, e := range entities {
		line := map[string]any{
			"input":       entityInput(e, fingerprints[e.GroupID]),
			"synchronous": false,
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("encode bulk line for %s: %w", e.Handle, err)
		}
	}

	uploadPath, err := c.stageUpload(ctx, payload.Bytes())
	if err != nil {
		return "", err
	}

	var data struct {
		BulkOperationRunMutation struct {
			BulkOperation *struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"bulkOperation"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"bulkOperationRunMutation"`
	}
	variables := map[string]any{
		"mutation":         productSetMutation,
		"stagedUploadPath": uploadPath,
	}
	if err := c.doGraphQL(ctx, bulkOperationRunMutation, variables, &data); err != nil {
		return "", fmt.Errorf("run bulk mutation: %w", err)
	}
	if len(data.BulkOperationRunMutation.UserErrors) > 0 {
		return "", &RejectionError{Handle: "bulk", Errors: data.BulkOperationRunMutation.UserErrors}
	}
	if data.BulkOperationRunMutation.BulkOperation == nil {
		return "", fmt.Errorf("run bulk mutation: no operation returned")
	}
	return data.BulkOperationRunMutation.BulkOperation.ID, nil
}

// stageUpload creates a staged upload target and posts the JSONL body
// to it, returning the staged path key for bulkOperationRunMutation.
func (c *HTTPClient) stageUpload(ctx context.Context, jsonl []byte) (string, error) {
	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []struct {
				URL        string `json:"url"`
				Parameters []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"parameters"`
			} `json:"stagedTargets"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}

	variables := map[string]any{
		"input": []map[string]any{{
			"resource":   "BULK_MUTATION_VARIABLES",
			"filename":   "bulk_upsert.jsonl",
			"mimeType":   "text/jsonl",
			"httpMethod": "POST",
		}},
	}
	if err := c.doGraphQL(ctx, stagedUploadsCreateMutation, variables, &data); err != nil {
		return "", fmt.Errorf("create staged upload: %w", err)
	}
	if len(data.StagedUploadsCreate.UserErrors) > 0 {
		return "", &RejectionError{Handle: "staged-upload", Errors: data.StagedUploadsCreate.UserErrors}
	}
	if len(data.StagedUploadsCreate.StagedTargets) == 0 {
		return "", fmt.Errorf("create staged upload: no target returned")
	}
	target := data.StagedUploadsCreate.StagedTargets[0]

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	var key string
	for _, p := range target.Parameters {
		if p.Name == "key" {
			key = p.Value
		}
		if err := mw.WriteField(p.Name, p.Value); err != nil {
			return "", fmt.Errorf("write upload field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "bulk_upsert.jsonl")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := fw.Write(jsonl); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload bulk payload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &RemoteError{Status: resp.StatusCode, Code: "upload_failed", Message: string(msg)}
	}

	return key, nil
}

// GetBulkOperation reads the current status of a bulk operation.
func (c *HTTPClient) GetBulkOperation(ctx context.Context, opID string) (*BulkOperation, error) {
	var data struct {
		Node *struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			ErrorCode   string `json:"errorCode"`
			ObjectCount int    `json:"objectCount,string"`
			URL         string `json:"url"`
		} `json:"node"`
	}

	if err := c.doGraphQL(ctx, bulkOperationNodeQuery, map[string]any{"id": opID}, &data); err != nil {
		return nil, fmt.Errorf("get bulk operation %s: %w", opID, err)
	}
	if data.Node == nil {
		return nil, fmt.Errorf("bulk operation %s not found", opID)
	}
	return &BulkOperation{
		ID:          data.Node.ID,
		Status:      data.Node.Status,
		ErrorCode:   data.Node.ErrorCode,
		ObjectCount: data.Node.ObjectCount,
		ResultURL:   data.Node.URL,
	}, nil
}

// FetchBulkResults downloads the completed operation's JSONL results
// and maps each line back to its handle.
func (c *HTTPClient) FetchBulkResults(ctx context.Context, op *BulkOperation) (map[string]*UpsertResult, error) {
	if op.ResultURL == "" {
		return map[string]*UpsertResult{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, op.ResultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create results request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download bulk results: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &RemoteError{Status: resp.StatusCode, Code: "results_download_failed", Message: "cannot download bulk results"}
	}

	results := make(map[string]*UpsertResult)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row struct {
			Data *bulkResultLine `json:"data"`
			bulkResultLine
		}
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("parse bulk result line: %w", err)
		}
		ps := row.ProductSet
		if row.Data != nil {
			ps = row.Data.ProductSet
		}
		if ps == nil {
			continue
		}
		result := &UpsertResult{UserErrors: ps.UserErrors}
		handle := ""
		if ps.Product != nil {
			result.ProductID = ps.Product.ID
			handle = ps.Product.Handle
		}
		if handle != "" {
			results[handle] = result
		}
	}
	return results, scanner.Err()
}

// bulkResultLine is one JSONL line of a bulk mutation result. The
// platform emits the mutation payload either bare or under "data".
type bulkResultLine struct {
	ProductSet *struct {
		Product *struct {
			ID     string `json:"id"`
			Handle string `json:"handle"`
		} `json:"product"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"productSet"`
}
