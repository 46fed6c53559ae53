package types

// ChatResponse is returned by every intent handler.
type ChatResponse struct {
	Message     string         `json:"message"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Action      string         `json:"action,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// SecurityScheme describes how an API expects credentials.
type SecurityScheme struct {
	KeyName string `json:"keyName,omitempty"`
	Type    string `json:"type"`
	In      string `json:"in,omitempty"`
	Name    string `json:"name,omitempty"`
	Scheme  string `json:"scheme,omitempty"`
}

// ProxyAuth selects a stored key and the scheme used to present it.
type ProxyAuth struct {
	APIKeyID string          `json:"apiKeyId"`
	Scheme   *SecurityScheme `json:"scheme,omitempty"`
}

// ProxyRequest is a caller-specified request to replay against a third-party API.
type ProxyRequest struct {
	SpecID       string         `json:"specId,omitempty"`
	EndpointPath string         `json:"endpointPath" validate:"required"`
	Method       string         `json:"method" validate:"required"`
	BaseURL      string         `json:"baseUrl,omitempty"`
	PathParams   map[string]any `json:"pathParams,omitempty"`
	QueryParams  map[string]any `json:"queryParams,omitempty"`
	Body         string         `json:"body,omitempty"`
	Auth         *ProxyAuth     `json:"auth,omitempty"`
}

// ProxyResponse is the relayed result of a proxy call.
type ProxyResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Data       any               `json:"data"`
	Time       int64             `json:"time"`
	URL        string            `json:"url"`
}

// SelectedEndpoint is an endpoint an AI plan chose, with the reason.
type SelectedEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Purpose   string `json:"purpose,omitempty"`
	UIElement string `json:"uiElement,omitempty"`
	Order     int    `json:"order,omitempty"`
	InputFrom string `json:"inputFrom,omitempty"`
	OutputTo  string `json:"outputTo,omitempty"`
}
