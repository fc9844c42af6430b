package local

import (
	"strings"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
)

const (
	MethodID   int32 = 0
	MethodName       = "fastembed"
)

var textOnly = []embedder.InputType{embedder.InputText}

// Models is the local catalog. IDs are stable.
var Models = embedder.Catalog{
	{ID: 0, Name: "AllMiniLML6V2", Inputs: textOnly, Dimension: 384},
	{ID: 1, Name: "BGEBaseENV15", Inputs: textOnly, Dimension: 768},
	{ID: 2, Name: "BGEBaseEN", Inputs: textOnly, Dimension: 768},
	{ID: 3, Name: "BGESmallENV15", Inputs: textOnly, Dimension: 384},
	{ID: 4, Name: "BGESmallEN", Inputs: textOnly, Dimension: 384},
	{ID: 5, Name: "BGESmallZHV15", Inputs: textOnly, Dimension: 512},
}

// engineCodes maps catalog IDs to fastembed model codes. The inverse is
// built in init; both directions must stay total over Models.
var engineCodes = map[int32]string{
	0: "fast-all-MiniLM-L6-v2",
	1: "fast-bge-base-en-v1.5",
	2: "fast-bge-base-en",
	3: "fast-bge-small-en-v1.5",
	4: "fast-bge-small-en",
	5: "fast-bge-small-zh-v1.5",
}

// hubNames are the upstream repository names the engine codes stand for.
var hubNames = map[string]int32{
	"sentence-transformers/all-MiniLM-L6-v2": 0,
	"BAAI/bge-base-en-v1.5":                  1,
	"BAAI/bge-base-en":                       2,
	"BAAI/bge-small-en-v1.5":                 3,
	"BAAI/bge-small-en":                      4,
	"BAAI/bge-small-zh-v1.5":                 5,
}

var engineToID = func() map[string]int32 {
	m := make(map[string]int32, len(engineCodes))
	for id, code := range engineCodes {
		m[code] = id
	}
	return m
}()

// EngineCode returns the fastembed code for a catalog ID.
func EngineCode(id int32) (string, bool) {
	code, ok := engineCodes[id]
	return code, ok
}

// ParseModelName canonicalizes name to a catalog entry. It accepts catalog
// names, engine codes and hub names; matching is exact except that hub
// names ignore case.
func ParseModelName(name string) (embedder.ModelInfo, bool) {
	if info, ok := Models.ByName(name); ok {
		return info, true
	}
	if id, ok := engineToID[name]; ok {
		return Models.ByID(id)
	}
	for hub, id := range hubNames {
		if strings.EqualFold(hub, name) {
			return Models.ByID(id)
		}
	}
	return embedder.ModelInfo{}, false
}
