// Command markovjs exposes a Markov text generator to JavaScript. Build it
// with gopherjs; the exported functions learn, build, setStartingWord,
// generate, download and upload all act on one shared session.
package main

// current is the session shared by every exported function.
var current = newSession()

func main() {

}
