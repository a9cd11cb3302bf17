// Cloudvet - Cloud Account Assessment Engine
// Scan. Score. Report.
package main

func main() {
	Execute()
}
