// Command axi2wb drives random AXI traffic through the AXI to Wishbone
// bridge and reports what happened on both buses.
package main

func main() {
	Execute()
}
