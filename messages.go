package server

// BotSnapshot is the per-bot wire representation broadcast to viewers.
type BotSnapshot struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Alignment string  `json:"alignment"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`
	Mandate   string  `json:"mandate"`
	Control   string  `json:"control"`
	TargetID  string  `json:"targetId,omitempty"`
	BeamX     float64 `json:"beamX,omitempty"`
	BeamY     float64 `json:"beamY,omitempty"`
}

// DebugLine is one colored segment of a bot's debug geometry.
type DebugLine struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color string  `json:"color"`
}

type joinResponse struct {
	Ver   int           `json:"ver"`
	ID    string        `json:"id"`
	Bots  []BotSnapshot `json:"bots"`
	World worldInfo     `json:"world"`
}

type worldInfo struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	TickRate int     `json:"tickRate"`
}

type stateMessage struct {
	Ver        int           `json:"ver"`
	Type       string        `json:"type"`
	Bots       []BotSnapshot `json:"bots"`
	DebugLines []DebugLine   `json:"debugLines,omitempty"`
	Tick       uint64        `json:"t"`
	ServerTime int64         `json:"serverTime"`
}

type commandAckMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Cmd    string `json:"cmd"`
	BotID  string `json:"botId"`
	Status string `json:"status"`
}

type diagnosticsViewer struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}
