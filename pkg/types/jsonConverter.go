package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

func (m ResourceMetadata) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(&struct {
		MimeType      string `json:"mimeType"`
		Charset       string `json:"charset"`
		Encoding      string `json:"encoding"`
		Language      string `json:"language"`
		Size          uint64 `json:"size"`
		Version       uint64 `json:"version"`
		LastModified  int64  `json:"lastModified"`
		ChunkCount    int    `json:"chunkCount"`
		HeaderAddress string `json:"headerAddress"`
	}{
		MimeType:      m.Properties.MimeType,
		Charset:       m.Properties.Charset,
		Encoding:      m.Properties.Encoding,
		Language:      m.Properties.Language,
		Size:          m.Size,
		Version:       m.Version,
		LastModified:  m.LastModified,
		ChunkCount:    m.ChunkCount,
		HeaderAddress: hex.EncodeToString(m.HeaderAddress[:]),
	}, "", "    ")
}

func (h HeaderInfo) MarshalJSON() ([]byte, error) {
	origins := make([]string, MethodCount)
	for i, r := range h.CORS.Origins {
		origins[i] = hex.EncodeToString(r[:])
	}

	methods := make([]string, 0, MethodCount)
	for _, m := range h.CORS.Methods.Methods() {
		methods = append(methods, m.String())
	}

	return json.MarshalIndent(&struct {
		Immutable        bool     `json:"immutable"`
		CachePreset      string   `json:"cachePreset"`
		CacheCustom      string   `json:"cacheCustom"`
		Methods          []string `json:"methods"`
		Origins          []string `json:"origins"`
		CORSPreset       string   `json:"corsPreset"`
		CORSCustom       string   `json:"corsCustom"`
		RedirectCode     uint16   `json:"redirectCode"`
		RedirectLocation string   `json:"redirectLocation"`
	}{
		Immutable:        h.Cache.Immutable,
		CachePreset:      h.Cache.Preset.String(),
		CacheCustom:      h.Cache.Custom,
		Methods:          methods,
		Origins:          origins,
		CORSPreset:       h.CORS.Preset.String(),
		CORSCustom:       h.CORS.Custom,
		RedirectCode:     h.Redirect.Code,
		RedirectLocation: h.Redirect.Location,
	}, "", "    ")
}

func (m *ResourceMetadata) PrettyPrint() {
	jsonBytes, err := m.MarshalJSON()
	if err != nil {
		fmt.Println("Error marshalling ResourceMetadata to JSON:", err)
		return
	}

	fmt.Println(string(jsonBytes))
}
