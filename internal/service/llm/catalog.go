package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"memchat/internal/logger"
)

// CatalogModel is one entry of the provider's model catalog, classified for
// presentation.
type CatalogModel struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ContextLength int          `json:"context_length"`
	Pricing       ModelPricing `json:"pricing"`
	IsPremium     bool         `json:"is_premium"`
}

// ModelPricing is the per-token price strings as reported by OpenRouter
type ModelPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// allowedProviders limits the catalog to the providers the product exposes
var allowedProviders = []string{
	"openai/",
	"anthropic/",
	"deepseek/",
	"minimax/",
	"x-ai/",
	"zhipuai/",
}

type catalogResponse struct {
	Data []struct {
		ID            string       `json:"id"`
		Name          string       `json:"name"`
		ContextLength int          `json:"context_length"`
		Pricing       ModelPricing `json:"pricing"`
		Architecture  struct {
			Modality string `json:"modality"`
		} `json:"architecture"`
	} `json:"data"`
}

// FetchModels retrieves the OpenRouter model catalog, keeps text-capable
// models from the allowed providers, classifies each as premium when either
// per-token price is positive, and sorts free models first, then by name.
func (p *OpenRouterProvider) FetchModels(ctx context.Context) ([]CatalogModel, error) {
	req, err := p.newRequest(ctx, http.MethodGet, openRouterModelsURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading models response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var catalog catalogResponse
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("error decoding models response: %w", err)
	}

	var models []CatalogModel
	for _, m := range catalog.Data {
		if !strings.Contains(m.Architecture.Modality, "text") {
			continue
		}
		if !hasAllowedProvider(m.ID) {
			continue
		}
		models = append(models, CatalogModel{
			ID:            m.ID,
			Name:          m.Name,
			ContextLength: m.ContextLength,
			Pricing:       m.Pricing,
			IsPremium:     ClassifyPremiumByPricing(m.Pricing),
		})
	}

	SortCatalog(models)

	logger.Log.WithField("model_count", len(models)).Debug("Fetched model catalog")
	return models, nil
}

func hasAllowedProvider(modelID string) bool {
	for _, prefix := range allowedProviders {
		if strings.HasPrefix(modelID, prefix) {
			return true
		}
	}
	return false
}

// ClassifyPremiumByPricing reports whether a catalog entry is premium: any
// positive prompt or completion per-token price qualifies. This feeds
// catalog presentation only; usage accounting classifies by identifier
// pattern (see IsFreeTierModel).
func ClassifyPremiumByPricing(pricing ModelPricing) bool {
	promptPrice, _ := strconv.ParseFloat(pricing.Prompt, 64)
	completionPrice, _ := strconv.ParseFloat(pricing.Completion, 64)
	return promptPrice > 0 || completionPrice > 0
}

// SortCatalog orders free models before premium ones, ties broken
// alphabetically by display name.
func SortCatalog(models []CatalogModel) {
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].IsPremium != models[j].IsPremium {
			return !models[i].IsPremium
		}
		return models[i].Name < models[j].Name
	})
}

// freeTierSubstrings and freeTierExact make up the identifier pattern set
// used for usage accounting.
var freeTierSubstrings = []string{"free", "liquid", "arcee"}

const freeTierExactModel = "google/gemma-7b-it:free"

// IsFreeTierModel reports whether a model identifier is accounted against
// the normal (free) tier. This pattern predicate is the canonical
// classification for usage counters.
func IsFreeTierModel(modelID string) bool {
	if modelID == freeTierExactModel {
		return true
	}
	for _, s := range freeTierSubstrings {
		if strings.Contains(modelID, s) {
			return true
		}
	}
	return false
}

// reasoningModelSubstrings drives the think-toggle capability heuristic.
// A substring check over known identifier patterns, not a registry.
var reasoningModelSubstrings = []string{
	"o1", "o3", "o4",
	"gpt-5",
	"claude",
	"deepseek-r1",
	"reasoner",
	"thinking",
	"grok",
}

// SupportsReasoning reports whether the reasoning-effort toggle should be
// offered for a model identifier.
func SupportsReasoning(modelID string) bool {
	id := strings.ToLower(modelID)
	for _, s := range reasoningModelSubstrings {
		if strings.Contains(id, s) {
			return true
		}
	}
	return false
}
