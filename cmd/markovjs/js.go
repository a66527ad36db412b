//go:build js

package main

//go:generate gopherjs build --minify

import (
	"log"

	"github.com/gopherjs/gopherjs/js"
)

func Learn(archive []byte) bool {
	return current.learn(archive)
}

func Build() {
	current.build()
}

func SetStartingWord(word string) bool {
	return current.setStartingWord(word)
}

func Generate() []string {
	return current.generate()
}

func Download() []byte {
	return current.download()
}

func Upload(data []byte) bool {
	return current.upload(data)
}

func init() {
	exports := js.Module.Get("exports")
	exports.Set("learn", Learn)
	exports.Set("build", Build)
	exports.Set("setStartingWord", SetStartingWord)
	exports.Set("generate", Generate)
	exports.Set("download", Download)
	exports.Set("upload", Upload)
	log.Printf("Murmur Markov generator loaded")
}
