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


// Package retrieval selects the knowledge-base label that best answers a query.
//
// The Retriever embeds the query once, then scores every label in
// knowledge-base order. A label's score is the mean cosine similarity of its
// top-k most similar chunks. The label with the strictly greatest score wins,
// so on a tie the label listed first in the knowledge base is kept. Labels
// scoring zero or less never win; when none scores above zero the result
// carries no match, which callers treat as insufficient evidence.
//
// Retrieval is read-only and needs no locking. A Retriever may be shared by
// any number of goroutines.
package retrieval
