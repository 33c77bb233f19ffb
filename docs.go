/*

Package sender provides a client that writes Influx line protocol points to a Telegraf
socket_listener input over TCP, UDP, or Unix-domain stream and datagram sockets.

Each call to Client.Write encodes one Point and sends it as one newline-terminated line.
There is no batching and no background goroutine: Write returns once the socket write
completes or fails. Stream connections that the agent has closed are re-established once
per Write.

Example

The following would send a point to the telegraf socket_listener input plugin
listening on port 8094:

	client, err := sender.NewClient(context.Background(), sender.Config{Address: "tcp://telegraf:8094"})
	if err != nil {
		return err
	}
	defer client.Close()

	point := sender.NewPoint("metric_name").
		AddTag("tag", "t1").
		AddField("intField", sender.Int(1)).
		AddField("floatField", sender.Float(3.14))
	err = client.Write(*point)

Points that already implement the Influx protocol.Metric interface can be written with
Client.WriteMetric.

*/
package sender
