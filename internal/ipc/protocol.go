package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK       bool              `json:"ok"`
	State    string            `json:"state,omitempty"`
	Message  string            `json:"message,omitempty"`
	Sessions map[string]string `json:"sessions,omitempty"`
	Error    string            `json:"error,omitempty"`
}
