package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mjardine/gemsync/internal/models"
)

// productSetMutation is the single atomic upsert: product shell,
// options, variants, metafields, and media travel in one payload so a
// failure never leaves a product visible without its variants.
const productSetMutation = `
mutation productSet($input: ProductSetInput!, $synchronous: Boolean!) {
  productSet(input: $input, synchronous: $synchronous) {
    product {
      id
      handle
    }
    userErrors {
      field
      message
      code
    }
  }
}`

const publishToCurrentChannelMutation = `
mutation publishablePublishToCurrentChannel($id: ID!) {
  publishablePublishToCurrentChannel(id: $id) {
    publishable {
      availablePublicationsCount {
        count
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const productByHandleQuery = `
query productByHandle($handle: String!) {
  productByHandle(handle: $handle) {
    id
    metafield(namespace: "gemsync", key: "fingerprint") {
      value
    }
  }
}`

// HTTPClient implements Client against the platform's GraphQL Admin API.
type HTTPClient struct {
	shopDomain string
	token      string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a GraphQL-based platform client.
func NewHTTPClient(shopDomain, token, apiVersion string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		shopDomain: shopDomain,
		token:      token,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
}

// SetLogger replaces the client's logger.
func (c *HTTPClient) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *HTTPClient) endpoint() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// doGraphQL executes one GraphQL request and decodes the data payload
// into out. Rate limits and server errors surface as *RemoteError.
func (c *HTTPClient) doGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := 2 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.ParseFloat(ra, 64); err == nil {
				wait = time.Duration(secs * float64(time.Second))
			}
		}
		return &RemoteError{Status: resp.StatusCode, Code: "rate_limited", Message: "too many requests", RetryAfter: wait}
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RemoteError{Status: resp.StatusCode, Code: "http_error", Message: string(msg)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &RemoteError{Status: resp.StatusCode, Code: "graphql_error", Message: envelope.Errors[0].Message}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// GetProductByHandle reads the remote state for one handle.
func (c *HTTPClient) GetProductByHandle(ctx context.Context, handle string) (*models.RemoteState, error) {
	var data struct {
		ProductByHandle *struct {
			ID        string `json:"id"`
			Metafield *struct {
				Value string `json:"value"`
			} `json:"metafield"`
		} `json:"productByHandle"`
	}

	if err := c.doGraphQL(ctx, productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, fmt.Errorf("get product %s: %w", handle, err)
	}
	if data.ProductByHandle == nil {
		return nil, nil
	}

	state := &models.RemoteState{PlatformID: data.ProductByHandle.ID}
	if data.ProductByHandle.Metafield != nil {
		state.LastFingerprint = data.ProductByHandle.Metafield.Value
	}
	return state, nil
}

// UpsertProduct dispatches the atomic productSet mutation. The upsert
// is keyed by handle, so retrying the same entity collapses onto the
// same remote product instead of creating a duplicate.
func (c *HTTPClient) UpsertProduct(ctx context.Context, entity *models.CatalogEntity, fingerprint string) (*UpsertResult, error) {
	variables := map[string]any{
		"input":       entityInput(entity, fingerprint),
		"synchronous": true,
	}

	var data struct {
		ProductSet struct {
			Product *struct {
				ID     string `json:"id"`
				Handle string `json:"handle"`
			} `json:"product"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"productSet"`
	}

	if err := c.doGraphQL(ctx, productSetMutation, variables, &data); err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", entity.Handle, err)
	}

	result := &UpsertResult{UserErrors: data.ProductSet.UserErrors}
	if data.ProductSet.Product != nil {
		result.ProductID = data.ProductSet.Product.ID
	}
	if len(result.UserErrors) > 0 {
		return result, &RejectionError{
			Handle:     entity.Handle,
			PlatformID: result.ProductID,
			Errors:     result.UserErrors,
		}
	}

	// Publish to the current sales channel so the product is visible.
	// Publish failures are logged, not fatal: the upsert itself landed
	// and the next run converges on the same product.
	if result.ProductID != "" {
		if err := c.publishToCurrentChannel(ctx, result.ProductID); err != nil {
			c.logger.Warn("failed to publish product to sales channel",
				"handle", entity.Handle, "product_id", result.ProductID, "error", err)
		}
	}
	return result, nil
}

// publishToCurrentChannel makes an upserted product visible on the
// shop's current sales channel.
func (c *HTTPClient) publishToCurrentChannel(ctx context.Context, productID string) error {
	var data struct {
		PublishablePublishToCurrentChannel struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"publishablePublishToCurrentChannel"`
	}

	if err := c.doGraphQL(ctx, publishToCurrentChannelMutation, map[string]any{"id": productID}, &data); err != nil {
		return err
	}
	if ue := data.PublishablePublishToCurrentChannel.UserErrors; len(ue) > 0 {
		return &RejectionError{Handle: productID, Errors: ue}
	}
	return nil
}

// entityInput serializes a catalog entity into a ProductSetInput. The
// sync fingerprint rides along as a metafield so the next pass can read
// the last-known state back from the platform.
func entityInput(e *models.CatalogEntity, fingerprint string) map[string]any {
	input := map[string]any{
		"title":       e.Title,
		"handle":      e.Handle,
		"productType": e.ProductType,
		"vendor":      e.Vendor,
		"status":      e.Status,
	}
	if e.Description != "" {
		input["descriptionHtml"] = e.Description
	}

	if len(e.Options) > 0 {
		options := make([]map[string]any, len(e.Options))
		for i, opt := range e.Options {
			values := make([]map[string]any, len(opt.SortedValues))
			for j, v := range opt.SortedValues {
				values[j] = map[string]any{"name": v}
			}
			options[i] = map[string]any{
				"name":     opt.DisplayName,
				"position": i + 1,
				"values":   values,
			}
		}
		input["productOptions"] = options
	}

	variants := make([]map[string]any, len(e.Variants))
	for i, v := range e.Variants {
		variant := map[string]any{
			"sku":   v.SKU,
			"price": v.Price,
		}
		if len(v.OptionValues) > 0 {
			ovs := make([]map[string]any, len(v.OptionValues))
			for j, ov := range v.OptionValues {
				ovs[j] = map[string]any{
					"optionName": e.Options[j].DisplayName,
					"name":       ov,
				}
			}
			variant["optionValues"] = ovs
		}
		variants[i] = variant
	}
	input["variants"] = variants

	metafields := make([]map[string]any, 0, len(e.Metafields)+1)
	for _, f := range e.Metafields {
		metafields = append(metafields, map[string]any{
			"namespace": f.Namespace,
			"key":       f.Key,
			"type":      f.Type,
			"value":     f.Value,
		})
	}
	metafields = append(metafields, map[string]any{
		"namespace": FingerprintNamespace,
		"key":       FingerprintKey,
		"type":      "single_line_text_field",
		"value":     fingerprint,
	})
	input["metafields"] = metafields

	if len(e.Media) > 0 {
		files := make([]map[string]any, len(e.Media))
		for i, m := range e.Media {
			files[i] = map[string]any{"originalSource": string(m)}
		}
		input["files"] = files
	}

	return input
}
