package main

import (
	"fmt"

	"github.com/andewx/learnvk"
	"github.com/xlab/tablewriter"
)

func printReport(device learnvk.RenderDevice, surface learnvk.Surface) {
	pd := device.PhysicalDevice()
	props := pd.Properties(false)

	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("RENDER DEVICE")
	table.AddRow("Device name", props.DeviceName)
	table.AddRow("Device type", props.DeviceType.String())
	table.AddRow("Vendor", fmt.Sprintf("%04x", props.VendorID))
	table.AddRow("API version", props.APIVersion.String())
	table.AddRow("Driver version", props.DriverVersion.String())
	table.AddRow("Sampled images per stage", props.Limits.MaxPerStageDescriptorSampledImages)

	if caps, err := pd.SurfaceCapabilities(surface, false); err == nil {
		table.AddSeparator()
		table.AddRow("Image count", fmt.Sprintf("%d - %d", caps.MinImageCount, caps.MaxImageCount))
		table.AddRow("Image size (current)", fmt.Sprintf("%dx%d", caps.CurrentExtent.Width, caps.CurrentExtent.Height))
		table.AddRow("Image size (extent)", fmt.Sprintf("%dx%d - %dx%d",
			caps.MinImageExtent.Width, caps.MinImageExtent.Height,
			caps.MaxImageExtent.Width, caps.MaxImageExtent.Height))
		table.AddRow("Usage flags", fmt.Sprintf("%02x", caps.SupportedUsageFlags))
		table.AddRow("Current transform", fmt.Sprintf("%02x", caps.CurrentTransform))
	}

	table.AddSeparator()
	table.AddRow("QUEUE FAMILIES", "")
	for _, fam := range pd.AvailableQueueFamilies(surface, false) {
		table.AddRow(fam.Index, fmt.Sprintf("%s x%d", fam.Features, fam.QueueCount))
	}

	table.AddSeparator()
	table.AddRow("QUEUES", "")
	for i, q := range device.Queues() {
		table.AddRow(i, fmt.Sprintf("family %d queue %d (%s)", q.FamilyIndex(), q.Index(), q.Priority()))
	}

	table.AddSeparator()
	table.AddRow("ENABLED FEATURES", "")
	for i, f := range device.EnabledFeatures().Features() {
		table.AddRow(i+1, f.String())
	}

	table.AddSeparator()
	table.AddRow("DEVICE EXTENSIONS", "")
	for i, name := range device.EnabledExtensions() {
		table.AddRow(i+1, name)
	}

	fmt.Println(table.Render())
}
