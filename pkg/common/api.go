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

package common

import (
	"sync"
)

// APIRoute describes an endpoint served by the API.
type APIRoute struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

var (
	apiRegistry      []APIRoute
	apiRegistryMutex sync.Mutex
)

// RegisterRoute records an API route. Registering a path again replaces
// its previous description in place.
func RegisterRoute(path string, methods []string, description string) {
	apiRegistryMutex.Lock()
	defer apiRegistryMutex.Unlock()

	route := APIRoute{
		Path:        path,
		Methods:     append([]string(nil), methods...),
		Description: description,
	}
	for i := range apiRegistry {
		if apiRegistry[i].Path == path {
			apiRegistry[i] = route
			return
		}
	}
	apiRegistry = append(apiRegistry, route)
}

// GetAPIRoutes returns a copy of the registered routes in registration order.
func GetAPIRoutes() []APIRoute {
	apiRegistryMutex.Lock()
	defer apiRegistryMutex.Unlock()

	routes := make([]APIRoute, len(apiRegistry))
	copy(routes, apiRegistry)
	return routes
}
