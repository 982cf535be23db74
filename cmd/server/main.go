// Command server runs the test results dashboard.
package main

func main() {
	Execute()
}
