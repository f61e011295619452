/*
 *  main.go
 *  cmd
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package main

import (
	"log"

	"github.com/ancmix/ancmix"
	"github.com/op/go-logging"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(ancmix.BackendFormatter)
	err := ancmix.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
