// Command backoffice runs the Maghreb Global back-office: the web server and
// a few maintenance commands sharing its configuration.
package main

func main() {
	Execute()
}
