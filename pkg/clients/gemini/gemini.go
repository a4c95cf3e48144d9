package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	adviceModel    = "gemini-3-pro-preview"
	analysisModel  = "gemini-3-flash-preview"
	temperature    = 0.7
)

const vetSystemInstruction = `Você é um veterinário sênior especialista em bovinos.
Ajude o pecuarista com dúvidas sobre manejo, saúde, nutrição e produtividade.
Seja prático, use termos técnicos quando necessário mas explique de forma simples.
Se houver risco de vida para o animal, recomende sempre a visita de um profissional local.`

const analysisSystemInstruction = "Retorne a resposta em formato Markdown com sugestões curtas e precisas."

// Client defines the generative advice operations used by the advice service.
type Client interface {
	VeterinaryAdvice(ctx context.Context, cowJSON string, question string) (string, error)
	AnalyzeProduction(ctx context.Context, historyJSON string) (string, error)
}

type geminiClient struct {
	httpClient *resty.Client
	baseURL    string
}

// NewClient creates a configured Gemini client.
func NewClient(apiKey string) Client {
	client := resty.New().
		SetHeader("x-goog-api-key", apiKey).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &geminiClient{httpClient: client, baseURL: defaultBaseURL}
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// VeterinaryAdvice answers a free-text question about one animal, using the
// serialized cow snapshot as context.
func (c *geminiClient) VeterinaryAdvice(ctx context.Context, cowJSON string, question string) (string, error) {
	prompt := fmt.Sprintf("Dados da Vaca: %s. Pergunta do pecuarista: %s", cowJSON, question)
	return c.generate(ctx, adviceModel, vetSystemInstruction, prompt)
}

// AnalyzeProduction turns a production history into three actionable tips.
func (c *geminiClient) AnalyzeProduction(ctx context.Context, historyJSON string) (string, error) {
	prompt := fmt.Sprintf("Analise este histórico de produção leiteira e dê 3 dicas acionáveis para melhorar o rendimento: %s", historyJSON)
	return c.generate(ctx, analysisModel, analysisSystemInstruction, prompt)
}

func (c *geminiClient) generate(ctx context.Context, model, system, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		GenerationConfig:  &generationConfig{Temperature: temperature},
	}

	var respBody generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model))

	if err != nil {
		return "", fmt.Errorf("gemini api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini api error: %s", resp.String())
	}
	if len(respBody.Candidates) == 0 || len(respBody.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return respBody.Candidates[0].Content.Parts[0].Text, nil
}
