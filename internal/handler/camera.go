package handler

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"time"

	"platewatch/internal/config"
	"platewatch/internal/logger"
	"platewatch/internal/repository"
	"platewatch/internal/service"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// maxUDPPacket is the read buffer for a single camera datagram.
const maxUDPPacket = 65507

// frameAssembler rebuilds JPEG frames from datagrams, one buffer per camera.
type frameAssembler struct {
	names   map[string]string
	buffers map[string]*bytes.Buffer
	emit    func(frame []byte, camera string)
}

func newFrameAssembler(names map[string]string, emit func([]byte, string)) *frameAssembler {
	return &frameAssembler{
		names:   names,
		buffers: make(map[string]*bytes.Buffer),
		emit:    emit,
	}
}

// cameraName maps a source IP to its configured name.
func (a *frameAssembler) cameraName(ip string) string {
	if name, ok := a.names[ip]; ok {
		return name
	}
	return "unknown_" + ip
}

// Feed appends one datagram from ip; a packet starting with the JPEG SOI
// marker restarts the frame and one ending with EOI completes it.
func (a *frameAssembler) Feed(ip string, data []byte) {
	cameraName := a.cameraName(ip)
	imgBuffer, ok := a.buffers[cameraName]
	if !ok {
		imgBuffer = new(bytes.Buffer)
		a.buffers[cameraName] = imgBuffer
	}

	if bytes.HasPrefix(data, jpegHeader) {
		imgBuffer.Reset()
	}
	imgBuffer.Write(data)

	if bytes.HasSuffix(data, jpegFooter) {
		if bytes.HasPrefix(imgBuffer.Bytes(), jpegHeader) {
			fullFrame := make([]byte, imgBuffer.Len())
			copy(fullFrame, imgBuffer.Bytes())
			a.emit(fullFrame, cameraName)
		}
		imgBuffer.Reset()
	}
}

// missRetry is how long an unregistered camera name is remembered before
// the database is asked again.
const missRetry = 30 * time.Second

// streamKeys resolves UDP camera names to their stream keys, caching hits.
// It is used from the UDP reader goroutine only.
type streamKeys struct {
	cameras repository.CameraRepository
	logger  *logger.Logger
	known   map[string]string
	missed  map[string]time.Time
}

func newStreamKeys(cameras repository.CameraRepository, logger *logger.Logger) *streamKeys {
	return &streamKeys{
		cameras: cameras,
		logger:  logger,
		known:   make(map[string]string),
		missed:  make(map[string]time.Time),
	}
}

// lookup returns the stream key of the camera registered as name.
func (k *streamKeys) lookup(name string) (string, bool) {
	if key, ok := k.known[name]; ok {
		return key, true
	}
	if at, ok := k.missed[name]; ok && time.Since(at) < missRetry {
		return "", false
	}

	cam, err := k.cameras.GetByName(name)
	if err != nil {
		k.logger.Error("Error looking up UDP camera %s: %v", name, err)
		k.missed[name] = time.Now()
		return "", false
	}
	if cam == nil {
		k.logger.Warning("Dropping frames from unregistered camera %s", name)
		k.missed[name] = time.Now()
		return "", false
	}
	delete(k.missed, name)
	k.known[name] = cam.StreamKey()
	return k.known[name], true
}

// UDPCameraHandler listens for UDP packets from push cameras, reconstructs
// JPEG frames, and forwards complete frames of registered cameras to the
// Manager. It returns when ctx is done.
func UDPCameraHandler(ctx context.Context, manager *service.Manager, cameras repository.CameraRepository, logger *logger.Logger, config *config.Config) {
	port := strconv.Itoa(config.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		logger.Error("Failed to resolve UDP address: %v", err)
		return
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Error("Failed to listen on UDP port %s: %v", port, err)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP Camera handler started on port %s", port)
	buffer := make([]byte, maxUDPPacket)
	keys := newStreamKeys(cameras, logger)
	assembler := newFrameAssembler(config.CameraNames, func(frame []byte, name string) {
		if key, ok := keys.lookup(name); ok {
			manager.HandleCameraImage(frame, key)
		}
	})

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("UDP Camera handler stopped")
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}
		assembler.Feed(remoteAddr.IP.String(), buffer[:n])
	}
}
