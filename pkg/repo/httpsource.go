/*
   Retrix - multi-platform emulator front-end
   Copyright (c) 2022, The Retrix Authors

   This file is part of Retrix.

   Retrix is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   Retrix is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with Retrix. If not, see <http://www.gnu.org/licenses/>.
*/

package repo

import (
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxDownload is the default size limit for HTTP sources.
const DefaultMaxDownload = 64 << 20

var client = &http.Client{Timeout: 5 * time.Minute}

/*
	NewHTTPSource fetches url. Reading stops after maxSize bytes, with a
	non-positive maxSize, DefaultMaxDownload applies.
*/
func NewHTTPSource(url string, maxSize int64) (*HTTPSource, error) {

	if maxSize <= 0 {
		maxSize = DefaultMaxDownload
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cannot download %s: %s", url, resp.Status)
	}

	log.WithFields(log.Fields{
		"url": url, "length": resp.ContentLength}).Debug("downloading")

	return &HTTPSource{
		url:      url,
		response: resp,
		reader:   io.LimitReader(resp.Body, maxSize)}, nil
}

//
type HTTPSource struct {
	url      string
	response *http.Response
	reader   io.Reader
}

//
func (hs *HTTPSource) Read(p []byte) (n int, err error) {
	return hs.reader.Read(p)
}

//
func (hs *HTTPSource) Close() error {
	return hs.response.Body.Close()
}
