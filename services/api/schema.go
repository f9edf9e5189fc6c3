// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

const visualizeRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "VisualizeRequest",
	"type": "object",
	"properties": {
		"code": {"type": "string"}
	},
	"required": ["code"]
}`

var (
	visualizeSchema    = jsonschema.Must(visualizeRequestSchema)
	visualizeSchemaMtx sync.Mutex // schemas register their keywords on first use
)

// decodeVisualizeRequest validates data against the request schema and
// decodes it.
func decodeVisualizeRequest(ctx context.Context, data []byte) (VisualizeRequest, error) {
	var req VisualizeRequest

	visualizeSchemaMtx.Lock()
	keyErrs, err := visualizeSchema.ValidateBytes(ctx, data)
	visualizeSchemaMtx.Unlock()
	if err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if len(keyErrs) > 0 {
		msgs := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			msgs = append(msgs, ke.Error())
		}
		return req, fmt.Errorf("invalid request body: %s", strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}
