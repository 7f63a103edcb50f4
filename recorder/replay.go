// Copyright 2025 Zintix Labs
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

package recorder

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
)

// SaveReplay 將逐局結果以 zstd 壓縮的 JSON Lines 寫出。
//
// 大量模擬的逐局結果幾乎都是重複度很高的小物件，壓縮率相當好。
func SaveReplay(w io.Writer, results []*buf.RunResult) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errs.Wrap(err, "can not create replay writer")
	}

	enc := json.NewEncoder(zw)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			zw.Close()
			return errs.Wrap(err, "can not encode replay line")
		}
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "can not flush replay writer")
	}
	return nil
}

// LoadReplay 讀回 SaveReplay 寫出的逐局結果。
func LoadReplay(r io.Reader) ([]*buf.RunResult, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errs.Wrap(err, "can not create replay reader")
	}
	defer zr.Close()

	out := make([]*buf.RunResult, 0, 64)
	dec := json.NewDecoder(zr)
	for {
		rr := new(buf.RunResult)
		if err := dec.Decode(rr); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errs.Wrap(err, "can not decode replay line")
		}
		out = append(out, rr)
	}
	return out, nil
}
