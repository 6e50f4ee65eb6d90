// Copyright 2025 Poiesic Systems
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


package storage

import (
	"fmt"

	com "github.com/mus-format/common-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lexrag/core"
)

// VectorMUS encodes a vector as a varint length followed by raw
// little-endian float32 components.
var VectorMUS = ord.NewSliceSer[float32](raw.Float32)

// MarshalVector serializes a vector to bytes.
func MarshalVector(v core.Vector) []byte {
	buf := make([]byte, VectorMUS.Size(v))
	VectorMUS.Marshal(v, buf)
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) (core.Vector, error) {
	// Check the length against the data before the serializer allocates for it.
	length, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrSerializationFailed, ErrTruncatedData, err)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, com.ErrNegativeLength)
	}
	if length > (len(data)-n)/com.Num32RawSize {
		return nil, fmt.Errorf("%w: %w: vector of length %d, got %d bytes",
			ErrSerializationFailed, ErrTruncatedData, length, len(data))
	}

	v, used, err := VectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if used != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after vector", ErrSerializationFailed, len(data)-used)
	}
	return core.Vector(v), nil
}
