/*
 *  view.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gobuffalo/packr"
)

// Viewer hosts a local page with stacked ancestry bars for the JSON report
// produced by `ancmix global --json`
type Viewer struct {
	Jsonfile string
	Port     int
}

// Run copies the report next to the embedded page and serves the directory
func (r *Viewer) Run() error {
	dir := filepath.Dir(r.Jsonfile)
	if filepath.Base(r.Jsonfile) != "global.json" {
		// The page always fetches global.json
		data, err := ioutil.ReadFile(r.Jsonfile)
		if err != nil {
			return fmt.Errorf("cannot read `%s` (%s)", r.Jsonfile, err)
		}
		if err := ioutil.WriteFile(filepath.Join(dir, "global.json"), data, 0644); err != nil {
			return err
		}
	}

	box := packr.NewBox("./templates")
	s, err := box.FindString("index.html")
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return err
	}
	_, _ = f.WriteString(s)
	_ = f.Sync()
	_ = f.Close()

	http.Handle("/", http.FileServer(http.Dir(dir)))
	port := r.Port
	if port == 0 {
		port = 3000
	}
	for {
		log.Noticef("Serving on localhost:%d ...", port)
		if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
			log.Debug(err)
			port++
		} else {
			break
		}
	}
	return nil
}
